package core

import "gpsdo/protocol"

// Version is reported in the start-up banner
const Version = "V0"

// DeviceStatus is a snapshot for displays and diagnostics
type DeviceStatus struct {
	Uptime          uint32 // Seconds, as counted by the clock task
	Discipline      DisciplineStats
	Queues          QueueStats
	Pool            protocol.PoolStats
	Link            protocol.LinkStats
	ForkDrops       uint32
	Acks            uint32
	UnknownCommands uint32
}

// Device owns every piece of firmware state. Targets call the *ISR
// methods from their interrupt handlers and Poll from the main loop.
type Device struct {
	cfg      Config
	drift    *DriftCompensator
	sched    *Scheduler
	pps      *Discipline
	link     *protocol.Link
	commands *Commands
	leds     Indicator

	uptime          uint32
	acks            uint32
	unknownCommands uint32
}

// NewDevice builds the scheduler, link and discipline engine from cfg.
// All pools are allocated here and never grow.
func NewDevice(cfg Config, leds Indicator) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if leds == nil {
		leds = NopIndicator{}
	}

	drift, err := NewDriftCompensator(cfg.ClockHz, cfg.TickHz, cfg.Prescale)
	if err != nil {
		return nil, err
	}
	sched, err := NewScheduler(cfg.TimerPoolSize, drift)
	if err != nil {
		return nil, err
	}
	link, err := protocol.NewLink(cfg.LinkBuffers)
	if err != nil {
		return nil, err
	}

	d := &Device{
		cfg:      cfg,
		drift:    drift,
		sched:    sched,
		link:     link,
		commands: NewCommands(),
		leds:     leds,
	}
	d.pps = NewDiscipline(cfg, sched, link, leds)

	// The report LED goes on when a report is queued and off once sent
	link.SetSentCallback(func() { leds.Off(LEDReport) })

	if err := d.commands.Register(protocol.CmdAcknowledge, "acknowledge", d.handleAcknowledge); err != nil {
		return nil, err
	}
	return d, nil
}

// Start schedules the heartbeat flasher and the uptime clock
func (d *Device) Start() error {
	DebugPrintln("GPSDO " + Version)

	// The clock fires every two seconds when that fits an 8-bit count
	seconds := uint8(2)
	if d.cfg.TickHz*2 > 255 {
		seconds = 1
	}
	clockTicks := uint8(d.cfg.TickHz * uint32(seconds))
	if err := d.sched.SetTimer(TaskClock, clockTicks, seconds, PayloadFromUint32(0), true); err != nil {
		return err
	}

	flashTicks := uint8(d.cfg.TickHz / 2)
	if err := d.sched.SetTimer(TaskFlasher, flashTicks, 0, Payload{}, true); err != nil {
		return err
	}

	DebugPrintln("Entering main loop")
	return nil
}

// InitialCompare returns the tick timer compare value to load before the
// first tick
func (d *Device) InitialCompare() uint16 { return d.drift.Initial() }

// Prescale returns the tick timer prescaler
func (d *Device) Prescale() uint32 { return d.cfg.Prescale }

// TickISR is the tick timer compare handler. It returns the compare value
// for the next period.
func (d *Device) TickISR() uint16 { return d.sched.TickISR() }

// CaptureISR is the reference edge capture handler
func (d *Device) CaptureISR(latch uint16) { d.pps.CaptureISR(latch) }

// OverflowISR is the capture counter overflow handler
func (d *Device) OverflowISR() { d.pps.OverflowISR() }

// LinkISR handles one byte clocked in by the host and returns the byte to
// shift out on the next clock.
func (d *Device) LinkISR(rx byte) byte { return d.link.Exchange(rx) }

// Poll runs one pass of the background loop: pending ticks, due timers,
// then received commands. It returns the number of items handled.
func (d *Device) Poll() int {
	d.sched.ProcessTicks()
	n := d.sched.DispatchDue(d.runTask)
	n += d.link.DispatchReceived(d.dispatchCommand)
	return n
}

// Idle reports whether the target may sleep until the next interrupt
func (d *Device) Idle() bool {
	return d.sched.Idle() && d.link.Idle()
}

// runTask is the single dispatch point for every timer kind
func (d *Device) runTask(t *Timer) uint8 {
	switch t.Kind {
	case TaskFlasher:
		d.leds.Toggle(LEDHeartbeat)
		return TaskReschedule

	case TaskClock:
		seconds := t.Payload.Uint32() + uint32(t.Context)
		t.Payload.SetUint32(seconds)
		d.uptime = seconds
		DebugPrintln(FormatUptime(seconds))
		return TaskReschedule

	case TaskPPSReport:
		d.pps.Report(t.Payload.Uint32())
		return TaskDone

	default:
		DebugPrintln("unknown task kind " + utoa(uint32(t.Kind)))
		return TaskDone
	}
}

func (d *Device) dispatchCommand(cmd byte, args []byte) {
	if err := d.commands.Dispatch(cmd, args); err != nil {
		if err == ErrUnknownCommand {
			d.unknownCommands++
		}
		DebugPrintln("command " + utoa(uint32(cmd)) + ": " + err.Error())
	}
}

func (d *Device) handleAcknowledge(args []byte) error {
	d.acks++
	DebugPrintln("Received message 1")
	return nil
}

// Commands returns the command table so targets can add handlers before Start
func (d *Device) Commands() *Commands { return d.commands }

// Scheduler returns the timer scheduler
func (d *Device) Scheduler() *Scheduler { return d.sched }

// Link returns the host link
func (d *Device) Link() *protocol.Link { return d.link }

// Discipline returns the frequency discipline engine
func (d *Device) Discipline() *Discipline { return d.pps }

// Config returns the validated configuration
func (d *Device) Config() Config { return d.cfg }

// Status gathers a snapshot of the device. Call from the background loop.
func (d *Device) Status() DeviceStatus {
	return DeviceStatus{
		Uptime:          d.uptime,
		Discipline:      d.pps.Stats(),
		Queues:          d.sched.QueueLengths(),
		Pool:            d.link.Pool(),
		Link:            d.link.Stats(),
		ForkDrops:       d.sched.ForkDrops(),
		Acks:            d.acks,
		UnknownCommands: d.unknownCommands,
	}
}
