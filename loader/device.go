package loader

import "ttxload/ttx"

// Device is the chip capability surface the loader drives. It is
// assumed to be already initialized; the loader does not interpret
// transport failures beyond attributing them to an operation.
type Device interface {
	// NocWrite writes data into one core's address space.
	NocWrite(core ttx.CoreId, addr uint64, data []byte) error

	// NocRead reads length bytes from one core's address space.
	NocRead(core ttx.CoreId, addr uint64, length int) ([]byte, error)

	// NocBroadcast writes data to every tensix core at once.
	NocBroadcast(addr uint64, data []byte) error

	// TensixLocations returns the usable tensix cores for the current
	// chip session.
	TensixLocations() (ttx.CoreSet, error)
}

// FanoutDevice adapts a device without a native broadcast primitive,
// such as a remote chip reached over ethernet, by fanning broadcast
// writes out as individual per-core writes.
type FanoutDevice struct {
	Device
}

func (d *FanoutDevice) NocBroadcast(addr uint64, data []byte) error {
	locations, err := d.Device.TensixLocations()
	if err != nil {
		return err
	}
	for _, core := range locations.Sorted() {
		if err := d.Device.NocWrite(core, addr, data); err != nil {
			return err
		}
	}
	return nil
}
