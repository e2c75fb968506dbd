package main

import (
	"fmt"
	"strconv"
	"time"

	"i4.energy/across/atcmd/at"
	"i4.energy/across/atcmd/interp"
)

// Version is the firmware version reported by AT$VER?. Set at build time.
var Version = "0.1.0"

const maxDeviceName = 32

// Core error codes reported by AT!ERR.
var coreErrors = map[int32]string{
	1: "FLASH_BUSY",
	2: "SENSOR_OFFLINE",
	3: "CALIBRATION_LOST",
}

// Device is the state behind the demo command set.
type Device struct {
	Name    string
	Version string
	started time.Time
	now     func() time.Time
}

func NewDevice(name string) *Device {
	return &Device{
		Name:    name,
		Version: Version,
		started: time.Now(),
		now:     time.Now,
	}
}

func (d *Device) uptime() time.Duration {
	return d.now().Sub(d.started)
}

// Commands returns the device command set, ready to be registered.
func (d *Device) Commands() []*interp.Command {
	return []*interp.Command{
		{
			Syntax:   "VER",
			Category: at.Extended,
			Help:     "Firmware version",
			Read: func(r interp.Replier) error {
				return r.SendReply(nil, d.Version)
			},
			ReadHelp: "Print the firmware version",
		},
		{
			Syntax:   "UPT",
			Category: at.Extended,
			Help:     "Uptime",
			Read: func(r interp.Replier) error {
				return r.SendReply(nil, strconv.FormatInt(int64(d.uptime()/time.Second), 10))
			},
			ReadHelp: "Print the uptime in seconds",
		},
		{
			Syntax:   "ID",
			Category: at.Extended,
			Help:     "Device name",
			Execute: func(r interp.Replier) error {
				return r.SendReply(nil, d.Name)
			},
			ExecuteHelp: "Print the device name",
			Read: func(r interp.Replier) error {
				return r.SendReply(nil, d.Name)
			},
			ReadHelp: "Print the device name",
			Write: func(r interp.Replier, args interp.Args) error {
				if err := args.Expect(1); err != nil {
					return err
				}
				name := args.String(0)
				if name == "" || len(name) > maxDeviceName {
					return interp.ParamValueError(0)
				}
				d.Name = name
				return nil
			},
			WriteArguments: "<name>",
			WriteHelp:      "Set the device name",
		},
		{
			Syntax:   "ERR",
			Category: at.Debug,
			Help:     "Core error report test",
			Write: func(r interp.Replier, args interp.Args) error {
				if err := args.Expect(1); err != nil {
					return err
				}
				code, err := args.Int(0)
				if err != nil {
					return err
				}
				return interp.CoreError(int32(code))
			},
			WriteArguments: "<code>",
			WriteHelp:      "Fail with the given core error code",
			ErrorText:      coreErrorText,
		},
		{
			Syntax:   "ARGS",
			Category: at.Debug,
			Help:     "Argument parsing test",
			Write: func(r interp.Replier, args interp.Args) error {
				for i, arg := range args {
					value := "-"
					if !arg.Omitted() {
						value = arg.String()
					}
					if err := r.SendReply(nil, fmt.Sprintf("%d:%s", i, value)); err != nil {
						return err
					}
				}
				return nil
			},
			WriteArguments: "[<arg>[,<arg>...]]",
			WriteHelp:      "Print every argument, - when omitted",
		},
	}
}

func coreErrorText(code int32) string {
	if text, ok := coreErrors[code]; ok {
		return text
	}
	return fmt.Sprintf("0x%02X", uint32(code))
}
