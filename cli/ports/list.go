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
	"fmt"
	"os"

	"github.com/arduino/arduino-cli/table"
	"github.com/embedded-lab/slip-dfu-uploader/cli/feedback"
	"github.com/embedded-lab/slip-dfu-uploader/ports"
	"github.com/spf13/cobra"
)

// NewCommand creates the `ports` command
func NewCommand() *cobra.Command {
	portsCmd := &cobra.Command{
		Use:     "ports",
		Short:   "Commands to operate on serial ports.",
		Long:    "A subset of commands to inspect the serial ports available for uploads.",
		Example: "  " + os.Args[0] + " ports list",
	}
	portsCmd.AddCommand(newListCommand())
	return portsCmd
}

func newListCommand() *cobra.Command {
	var usbOnly bool
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List available serial ports",
		Long:    "Displays the serial ports found on this computer with their USB ids.",
		Example: "  " + os.Args[0] + " ports list --usb",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			list(ports.SerialEnumerator, usbOnly)
		},
	}
	listCmd.Flags().BoolVar(&usbOnly, "usb", false, "Show only USB serial ports")
	return listCmd
}

// PortListResult is the result of `ports list`
type PortListResult []*ports.PortInfo

func list(enumerate ports.Enumerator, usbOnly bool) {
	found, err := enumerate()
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error listing serial ports: %s", err), feedback.ErrGeneric)
		return
	}
	if usbOnly {
		found = ports.USBOnly(found)
	}
	feedback.PrintResult(PortListResult(found))
}

func (r PortListResult) String() string {
	if len(r) == 0 {
		return "No serial ports found."
	}
	t := table.New()
	t.SetHeader("Port", "Product", "VID", "PID")
	for _, p := range r {
		t.AddRow(p.Name, p.Product, p.VID, p.PID)
	}
	return t.Render()
}

func (r PortListResult) Data() interface{} {
	return r
}
