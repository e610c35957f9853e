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
	"testing"

	"github.com/embedded-lab/slip-dfu-uploader/cli/globals"
	"github.com/embedded-lab/slip-dfu-uploader/ports"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) *PortFlags {
	flags := &PortFlags{}
	cmd := &cobra.Command{Use: "test"}
	flags.AddToCommand(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return flags
}

func TestMode(t *testing.T) {
	config := globals.DefaultConfig()
	tests := []struct {
		args     []string
		expected ports.Mode
	}{
		{nil, ports.AutoDetect{VID: "0403", PID: "6015"}},
		{[]string{"--vid", "1a86", "--pid", "7523"}, ports.AutoDetect{VID: "1a86", PID: "7523"}},
		{[]string{"-p", "COM3"}, ports.Named{Address: "COM3"}},
		{[]string{"-s", "search-first"}, ports.SearchFirst{}},
		{[]string{"--select", "SEARCH-ALL"}, ports.SearchAll{}},
		{[]string{"--select", "interactive"}, ports.Interactive{}},
	}
	for _, tt := range tests {
		mode, err := parse(t, tt.args...).Mode(config)
		require.NoError(t, err, "%v", tt.args)
		require.Equal(t, tt.expected, mode, "%v", tt.args)
	}
}

func TestModeFromConfig(t *testing.T) {
	config := &globals.Config{VendorID: "10c4", ProductID: "ea60"}
	mode, err := parse(t, "--pid", "ea61").Mode(config)
	require.NoError(t, err)
	require.Equal(t, ports.AutoDetect{VID: "10c4", PID: "ea61"}, mode)
}

func TestModeErrors(t *testing.T) {
	_, err := parse(t, "-s", "everything").Mode(globals.DefaultConfig())
	require.Error(t, err)

	_, err = parse(t, "-p", "COM3", "-s", "search-all").Mode(globals.DefaultConfig())
	require.Error(t, err)
}
