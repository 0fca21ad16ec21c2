/*
Package session runs question sessions against the orbit cluster.

A Machine drives one session through IDLE, PROCESSING and REVEALED. It validates the
question, decides up front whether the run will end in a simulated fault, hands the
chosen script to the sequencer and publishes the result after a short dramatic delay.

Every transition bumps a generation counter. Callbacks scheduled by an earlier
generation (sequencer ticks, the reveal delay) are discarded, so a Reset or Rerun can
never leak stale lines into a fresh log.

The Manager keeps many machines addressable by ID for the HTTP and MCP adapters and
evicts the ones left idle for too long.
*/
package session
