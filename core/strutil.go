package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems. It takes an
// int32 because int is 16 bits wide on AVR.
func itoa(n int32) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	u := uint32(n)
	if negative {
		u = uint32(-n)
	}

	s := utoa(u)
	if negative {
		return "-" + s
	}
	return s
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	// Enough for 4294967295
	var buf [10]byte
	pos := len(buf)

	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}

// padLeft right-aligns s in a field of width spaces
func padLeft(s string, width int) string {
	for len(s) < width {
		s = " " + s
	}
	return s
}

// pad2 renders 0-99 as two digits
func pad2(n uint8) string {
	return string([]byte{'0' + n/10%10, '0' + n%10})
}

// FormatUptime renders elapsed seconds as "DDDd HH:MM:SS"
func FormatUptime(seconds uint32) string {
	days := seconds / 86400
	seconds -= days * 86400
	hours := uint8(seconds / 3600)
	seconds -= uint32(hours) * 3600
	minutes := uint8(seconds / 60)
	secs := uint8(seconds - uint32(minutes)*60)

	return padLeft(utoa(days), 3) + "d " + pad2(hours) + ":" + pad2(minutes) + ":" + pad2(secs)
}
