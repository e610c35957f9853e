/*
	slip-dfu-uploader
	Copyright (c) 2023 Arduino LLC.  All right reserved.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package ports

import (
	"strings"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port visible on the host
type PortInfo struct {
	Name    string `json:"name"`
	Product string `json:"product,omitempty"`
	IsUSB   bool   `json:"is_usb"`
	VID     string `json:"vid,omitempty"`
	PID     string `json:"pid,omitempty"`
}

// Matches reports whether the port is an USB device with the given
// vendor and product ids. Ids are compared as hex numbers, so "403" and
// "0403" are the same vendor.
func (p *PortInfo) Matches(vid, pid string) bool {
	return p.IsUSB && sameID(p.VID, vid) && sameID(p.PID, pid)
}

func sameID(a, b string) bool {
	a = strings.TrimLeft(strings.TrimPrefix(strings.ToLower(a), "0x"), "0")
	b = strings.TrimLeft(strings.TrimPrefix(strings.ToLower(b), "0x"), "0")
	return a == b
}

// Enumerator lists the serial ports currently available.
type Enumerator func() ([]*PortInfo, error)

// SerialEnumerator lists the serial ports of the host.
func SerialEnumerator() ([]*PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		logrus.Error(err)
		return nil, err
	}
	res := make([]*PortInfo, 0, len(details))
	for _, d := range details {
		res = append(res, &PortInfo{
			Name:    d.Name,
			Product: d.Product,
			IsUSB:   d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
		})
	}
	logrus.Debugf("found %d serial ports", len(res))
	return res, nil
}

// USBOnly keeps the ports backed by an USB device.
func USBOnly(ports []*PortInfo) []*PortInfo {
	var res []*PortInfo
	for _, p := range ports {
		if p.IsUSB {
			res = append(res, p)
		}
	}
	return res
}
