/*
Package sequencer drives the fake loading animation of the cluster.

A run takes an ordered list of status lines and a failure flag decided by the caller.
Every line is typed out one rune at a time, held on screen for a short pause, and then
committed with an OK or FAIL status. The whole run always lasts the configured budget,
however many lines there are.

# Timing

With a budget D and N lines, step i owns the window [D*i/N, D*(i+1)/N). The first 70%
of the window is spent typing, evenly divided across the line's runes; the remainder is
the pause after the full line is visible. Deadlines are absolute offsets from the start
of the run, so timer jitter never accumulates.

# Failures

When a run is flagged to fail, a subset of interior lines (never the first or the last)
is chosen once, up front, and those lines report FAIL. See PickFailures.

# Glitches

An optional, independent goroutine occasionally corrupts the text currently being typed
and reverts it shortly after. Glitches are reported through their own hook and never
touch committed outcomes or the timeline.
*/
package sequencer
