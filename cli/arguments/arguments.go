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

package arguments

import (
	"fmt"
	"strings"

	"github.com/embedded-lab/slip-dfu-uploader/cli/globals"
	"github.com/embedded-lab/slip-dfu-uploader/ports"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

const (
	modeAuto        = "auto"
	modeSearchFirst = "search-first"
	modeSearchAll   = "search-all"
	modeInteractive = "interactive"
)

var modes = []string{modeAuto, modeSearchFirst, modeSearchAll, modeInteractive}

// PortFlags contains the flags used to select the upload port.
// This is useful so all flags used by commands that need
// this information are consistent with each other.
type PortFlags struct {
	Address string
	Select  string
	VID     string
	PID     string
}

// AddToCommand adds the port selection flags to the specified Command
func (f *PortFlags) AddToCommand(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Address, "port", "p", "", "Upload port, e.g.: COM10, /dev/ttyUSB0")
	cmd.Flags().StringVarP(&f.Select, "select", "s", modeAuto, "How to find the port when --port is not given, can be {"+strings.Join(modes, "|")+"}")
	cmd.Flags().StringVar(&f.VID, "vid", "", "USB vendor ID of the board serial bridge used by --select auto")
	cmd.Flags().StringVar(&f.PID, "pid", "", "USB product ID of the board serial bridge used by --select auto")
}

// Mode returns the port selection mode. Ids not given on the command line
// are taken from config.
func (f *PortFlags) Mode(config *globals.Config) (ports.Mode, error) {
	if f.Address != "" {
		if f.Select != "" && f.Select != modeAuto {
			return nil, fmt.Errorf("--port can't be used together with --select %s", f.Select)
		}
		return ports.Named{Address: f.Address}, nil
	}

	selected := strings.ToLower(f.Select)
	if !slices.Contains(modes, selected) {
		return nil, fmt.Errorf("invalid port selection %q, can be {%s}", f.Select, strings.Join(modes, "|"))
	}
	switch selected {
	case modeSearchFirst:
		return ports.SearchFirst{}, nil
	case modeSearchAll:
		return ports.SearchAll{}, nil
	case modeInteractive:
		return ports.Interactive{}, nil
	}

	mode := ports.AutoDetect{VID: f.VID, PID: f.PID}
	if mode.VID == "" {
		mode.VID = config.VendorID
	}
	if mode.PID == "" {
		mode.PID = config.ProductID
	}
	return mode, nil
}
