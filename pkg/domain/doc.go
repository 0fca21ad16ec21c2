/*
Package domain contains the core domain models of the QX32 orbit cluster.

It defines the entities shared by the sequencer, the session state machine and the
presentation adapters. This package is kept pure and free of external dependencies
like I/O or timers.

# Key Entities

  - Question: The raw and normalized text submitted by the operator.
  - StepOutcome: A committed status line and whether it reported OK or FAIL.
  - Result: The final verdict, either a YES/NO answer with a probability or a simulated error.
  - Phase: The lifecycle stage of a session (IDLE, PROCESSING, REVEALED).
  - Snapshot: A read-only projection of a session for rendering.
*/
package domain
