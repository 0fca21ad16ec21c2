package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

const (
	neon    = "#00ff88"
	neonDim = "#00aa5b"
	amber   = "#facc15"
	alert   = "#f87171"
)

// PrintBanner outputs the cluster's header.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"   ___  __  ______ ____  ", "#34d399"},
		{"  / _ \\ \\ \\/ /___ /___ \\ ", "#10b981"},
		{" | | | | \\  /  |_ \\ __) |", "#00ff88"},
		{" | |_| | /  \\ ___) / __/ ", "#22c55e"},
		{"  \\__\\_\\/_/\\_\\____/_____|", "#16a34a"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, out.String("QX32 ORBIT CLUSTER").Bold().Foreground(out.Color(neon)),
		out.String("  SYS.VER.9.2.1 // ONLINE").Faint())
	fmt.Fprintln(w, out.String("MEM: 64TB // QUBITS: 4096 // TEMP: 2.4K // CONNECTED TO DEEP SPACE RELAY").Faint())
	fmt.Fprintln(w)
}

// PrintWarning outputs the operator warning shown before every query.
func PrintWarning(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String("⚠ Warning, Operator ⚠").Bold().Foreground(out.Color(amber)))
	fmt.Fprintln(w, out.String("Each query consumes more energy than a small city.").Faint())
	fmt.Fprintln(w, out.String("When engaging the QX32 ORBIT CLUSTER, there is a small chance the simulation you are currently in may experience glitches.").Faint())
	fmt.Fprintln(w)
}
