//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
)

var errI2CBus = errors.New("unsupported I2C bus ID")

// configureI2CBus initializes I2C0 (SDA=GP4, SCL=GP5) or I2C1 (SDA=GP6,
// SCL=GP7) at frequencyHz.
func configureI2CBus(id uint8, frequencyHz uint32) (*machine.I2C, error) {
	var i2c *machine.I2C
	switch id {
	case 0:
		i2c = machine.I2C0
	case 1:
		i2c = machine.I2C1
	default:
		return nil, errI2CBus
	}

	// SDA and SCL pins are set to defaults by TinyGo
	if err := i2c.Configure(machine.I2CConfig{Frequency: frequencyHz}); err != nil {
		return nil, err
	}
	return i2c, nil
}
