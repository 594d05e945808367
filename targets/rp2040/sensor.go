//go:build rp2040 || rp2350

package main

import (
	"encoding/binary"
	"machine"

	"tinygo.org/x/drivers/adxl345"

	"canhal/core"
)

// Node identifiers follow the CANopen layout: commands arrive on
// 0x600+node, replies leave on 0x580+node and heartbeats on 0x700+node.
const (
	nmtID       = 0x000
	commandBase = 0x600
	replyBase   = 0x580
	heartbeatID = 0x700

	heartbeatPeriodMS = 1000
	minStreamPeriodMS = 10
)

// Node commands, first payload byte
const (
	cmdReadAccel   = 0x01
	cmdStartStream = 0x02 // period in ms, big-endian uint16
	cmdStopStream  = 0x03
	cmdStatus      = 0x04

	nmtResetNode   = 0x81
	stateOperation = 0x05
	replyError     = 0xFF
)

// AccelNode serves an ADXL345 accelerometer over CAN.
type AccelNode struct {
	id     uint32
	sensor adxl345.Device
	router *core.CANRouter
	can    *MCP2515Driver

	commands  core.CANRoute
	nmt       core.CANRoute
	heartbeat core.Timer
	stream    core.Timer

	streamPeriod uint32 // ticks
	reset        func()
}

// NewAccelNode configures the sensor on i2c. Register must be called before
// frames are routed to the node.
func NewAccelNode(id uint32, i2c *machine.I2C, can *MCP2515Driver, reset func()) *AccelNode {
	n := &AccelNode{
		id:     id,
		sensor: adxl345.New(i2c),
		can:    can,
		reset:  reset,
	}
	n.sensor.Configure()
	n.sensor.SetRate(adxl345.RATE_100HZ)
	n.sensor.SetRange(adxl345.RANGE_16G)
	return n
}

// Register links the node's routes into router and starts the heartbeat.
func (n *AccelNode) Register(router *core.CANRouter) {
	n.router = router
	core.Critical(func() {
		router.AddMessageCallback(&n.commands, commandBase+n.id, core.CANHandlerFunc(n.handleCommand))
		router.AddMessageCallback(&n.nmt, nmtID, core.CANHandlerFunc(n.handleNMT))
	})

	n.heartbeat.Value = core.TimerEvent{
		WakeTime: core.GetTime() + ticksFromMS(heartbeatPeriodMS),
		Handler:  n.sendHeartbeat,
	}
	core.ScheduleTimer(&n.heartbeat)
}

func (n *AccelNode) handleCommand(frame core.CANFrame) {
	if frame.RTR || frame.Len == 0 {
		return
	}
	cmd := frame.Data[0]
	switch cmd {
	case cmdReadAccel:
		n.sendAccel()

	case cmdStartStream:
		if frame.Len < 3 {
			n.reply(replyError, cmd)
			return
		}
		period := uint32(binary.BigEndian.Uint16(frame.Data[1:3]))
		if period < minStreamPeriodMS {
			n.reply(replyError, cmd)
			return
		}
		n.streamPeriod = ticksFromMS(period)
		n.stream.Value = core.TimerEvent{
			WakeTime: core.GetTime() + n.streamPeriod,
			Handler:  n.streamTick,
		}
		core.ScheduleTimer(&n.stream)
		n.reply(cmd)

	case cmdStopStream:
		core.CancelTimer(&n.stream)
		n.reply(cmd)

	case cmdStatus:
		stats := n.router.Stats()
		var buf [7]byte
		buf[0] = cmd
		binary.BigEndian.PutUint16(buf[1:], uint16(stats.Matched))
		binary.BigEndian.PutUint16(buf[3:], uint16(stats.Dropped))
		binary.BigEndian.PutUint16(buf[5:], uint16(n.can.rxErrors))
		n.reply(buf[:]...)

	default:
		n.reply(replyError, cmd)
	}
}

// handleNMT honours reset requests addressed to this node or broadcast.
func (n *AccelNode) handleNMT(frame core.CANFrame) {
	if frame.Len < 2 || frame.Data[0] != nmtResetNode {
		return
	}
	if target := uint32(frame.Data[1]); target == 0 || target == n.id {
		n.reset()
	}
}

func (n *AccelNode) sendAccel() {
	x, y, z := n.sensor.ReadRawAcceleration()
	var buf [7]byte
	buf[0] = cmdReadAccel
	binary.BigEndian.PutUint16(buf[1:], uint16(int16(x)))
	binary.BigEndian.PutUint16(buf[3:], uint16(int16(y)))
	binary.BigEndian.PutUint16(buf[5:], uint16(int16(z)))
	n.reply(buf[:]...)
}

func (n *AccelNode) reply(data ...byte) {
	frame, err := core.NewCANFrame(replyBase+n.id, data)
	if err != nil {
		return
	}
	if err := n.router.Bus().Send(frame); err != nil {
		core.DebugAsync("reply failed: " + err.Error())
	}
}

func (n *AccelNode) streamTick(t *core.Timer) uint8 {
	n.sendAccel()
	t.Value.WakeTime += n.streamPeriod
	return core.SF_RESCHEDULE
}

func (n *AccelNode) sendHeartbeat(t *core.Timer) uint8 {
	frame := core.MustCANFrame(heartbeatID+n.id, []byte{stateOperation})
	if err := n.router.Bus().Send(frame); err != nil {
		core.DebugAsync("heartbeat failed: " + err.Error())
	}
	t.Value.WakeTime += ticksFromMS(heartbeatPeriodMS)
	return core.SF_RESCHEDULE
}
