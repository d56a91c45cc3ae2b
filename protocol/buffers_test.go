package protocol

import "testing"

func TestBufferWrite(t *testing.T) {
	var buf Buffer
	buf.reset()

	n, err := buf.Write([]byte{1, 2, 3})
	if err != nil || n != 3 {
		t.Fatalf("Write returned %d, %v", n, err)
	}
	if err := buf.WriteByte(4); err != nil {
		t.Fatalf("WriteByte failed: %v", err)
	}
	if buf.Len() != 4 {
		t.Errorf("Expected length 4, got %d", buf.Len())
	}

	big := make([]byte, BufferSize)
	n, err = buf.Write(big)
	if err != ErrBufferFull {
		t.Errorf("Expected ErrBufferFull, got %v", err)
	}
	if n != BufferSize-4 {
		t.Errorf("Expected short write of %d, got %d", BufferSize-4, n)
	}
	if err := buf.WriteByte(0); err != ErrBufferFull {
		t.Errorf("Expected ErrBufferFull from WriteByte, got %v", err)
	}
}

func TestRingBuffer(t *testing.T) {
	ring := NewRingBuffer(10)

	if !ring.IsEmpty() {
		t.Error("New ring should be empty")
	}

	if n := ring.Push([]byte{1, 2, 3, 4, 5}); n != 5 {
		t.Errorf("Expected to push 5 bytes, pushed %d", n)
	}
	if ring.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", ring.Available())
	}

	for want := byte(1); want <= 3; want++ {
		b, ok := ring.PopByte()
		if !ok || b != want {
			t.Errorf("PopByte = %d, %v; want %d", b, ok, want)
		}
	}
	if ring.Free() != 7 {
		t.Errorf("Expected 7 bytes free, got %d", ring.Free())
	}

	// Capacity 10 holds 9 bytes
	ring.Reset()
	big := make([]byte, 12)
	if n := ring.Push(big); n != 9 {
		t.Errorf("Expected to push 9 bytes into size-10 ring, pushed %d", n)
	}
	if ring.PushByte(0xFF) {
		t.Error("PushByte should report no room on a full ring")
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	ring := NewRingBuffer(5)

	ring.Push([]byte{1, 2, 3, 4})
	ring.PopByte()
	ring.PopByte()

	if n := ring.Push([]byte{5, 6}); n != 2 {
		t.Errorf("Expected to push 2 bytes, pushed %d", n)
	}

	var got []byte
	for {
		b, ok := ring.PopByte()
		if !ok {
			break
		}
		got = append(got, b)
	}
	want := []byte{3, 4, 5, 6}
	if string(got) != string(want) {
		t.Errorf("Wrap-around data mismatch: got %v, want %v", got, want)
	}
}
