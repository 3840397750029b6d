// Package icm20948 reads the accelerometer of an ICM-20948 over I2C.
//
// Only what the orientation sources need is configured: the accelerometer at
// ±2g behind its low-pass filter. Gyro and magnetometer stay powered down.
package icm20948

import (
	"fmt"
	"time"

	"orientd/internal/i2c"
)

var sleep = time.Sleep

const (
	addrDefault = 0x68
	addrAlt     = 0x69

	regWhoAmI  = 0x00
	whoAmIVal  = 0xEA
	regBankSel = 0x7F

	// Bank 0.
	regPwrMgmt1   = 0x06
	regPwrMgmt2   = 0x07
	regIntEnable  = 0x10
	regAccelXoutH = 0x2D
	bitReset      = 0x80
	clkAuto       = 0x01
	gyroOff       = 0x07 // DISABLE_GYRO[2:0]; accel axes enabled

	// Bank 2.
	bank2           = 2
	regAccelSmplrt1 = 0x10
	regAccelSmplrt2 = 0x11
	regAccelConfig  = 0x14

	// ACCEL_FS_SEL=0 (±2g), DLPFCFG=3, ACCEL_FCHOICE=1.
	accelConfig2g = 3<<3 | 0x01
	lsbPerG2g     = 16384.0
)

// Accel is one accelerometer reading in g, chip axes.
type Accel struct {
	X, Y, Z float64
}

type Device struct {
	dev regIO

	curBank byte
	scale   float64
}

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

// DefaultAddress is AD0 low. AltAddress is AD0 high.
func DefaultAddress() uint16 { return addrDefault }
func AltAddress() uint16     { return addrAlt }

func New(dev *i2c.Dev) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("icm20948: dev is nil")
	}
	return newWithIO(dev)
}

func newWithIO(dev regIO) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("icm20948: dev is nil")
	}
	d := &Device{dev: dev, curBank: 0xFF}

	who, err := d.dev.ReadRegU8(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("icm20948: whoami read failed: %w", err)
	}
	if who != whoAmIVal {
		return nil, fmt.Errorf("icm20948: whoami=0x%02X want 0x%02X", who, whoAmIVal)
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// rateDivider returns ACCEL_SMPLRT_DIV for hz given the 1125 Hz base rate.
func rateDivider(hz float64) uint16 {
	if hz <= 0 || hz >= 1125 {
		return 0
	}
	div := 1125/hz - 1
	if div > 4095 {
		div = 4095
	}
	return uint16(div)
}

func (d *Device) init() error {
	if err := d.setBank(0); err != nil {
		return err
	}
	if err := d.dev.WriteReg(regPwrMgmt1, bitReset); err != nil {
		return fmt.Errorf("icm20948: reset failed: %w", err)
	}
	sleep(100 * time.Millisecond)
	// Reset puts BANK_SEL back to 0.
	d.curBank = 0

	if err := d.dev.WriteReg(regPwrMgmt1, clkAuto); err != nil {
		return fmt.Errorf("icm20948: wake failed: %w", err)
	}
	sleep(10 * time.Millisecond)
	if err := d.dev.WriteReg(regPwrMgmt2, gyroOff); err != nil {
		return fmt.Errorf("icm20948: power config failed: %w", err)
	}
	_ = d.dev.WriteReg(regIntEnable, 0x00)

	if err := d.setBank(bank2); err != nil {
		return err
	}
	div := rateDivider(25)
	_ = d.dev.WriteReg(regAccelSmplrt1, byte(div>>8))
	_ = d.dev.WriteReg(regAccelSmplrt2, byte(div))
	if err := d.dev.WriteReg(regAccelConfig, accelConfig2g); err != nil {
		return fmt.Errorf("icm20948: accel config failed: %w", err)
	}
	if err := d.setBank(0); err != nil {
		return err
	}

	d.scale = 1 / lsbPerG2g
	return nil
}

func (d *Device) setBank(bank byte) error {
	if d.curBank == bank {
		return nil
	}
	if err := d.dev.WriteReg(regBankSel, bank<<4); err != nil {
		return fmt.Errorf("icm20948: set bank %d failed: %w", bank, err)
	}
	d.curBank = bank
	return nil
}

func (d *Device) ReadAccel() (Accel, error) {
	if d == nil {
		return Accel{}, fmt.Errorf("icm20948: device is nil")
	}
	if err := d.setBank(0); err != nil {
		return Accel{}, err
	}

	var buf [6]byte
	if err := d.dev.ReadReg(regAccelXoutH, buf[:]); err != nil {
		return Accel{}, fmt.Errorf("icm20948: read accel failed: %w", err)
	}
	ax := int16(buf[0])<<8 | int16(buf[1])
	ay := int16(buf[2])<<8 | int16(buf[3])
	az := int16(buf[4])<<8 | int16(buf[5])

	return Accel{
		X: float64(ax) * d.scale,
		Y: float64(ay) * d.scale,
		Z: float64(az) * d.scale,
	}, nil
}
