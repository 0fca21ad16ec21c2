/*
Package qx32 is the QX32 Orbit Cluster: a theatrical "quantum computer" that answers
yes/no questions.

The cluster validates the question, types out a boot sequence of status lines over a
fixed time budget and then reveals a verdict. The verdict is deterministic: the
probability is a stable hash of the normalized question, so asking the same thing twice
gives the same answer. A fraction of sessions end in a simulated fault instead.

# Usage

	cluster := qx32.New()
	defer cluster.Close()

	snap, err := cluster.Ask(ctx, "Is the sky blue?")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(snap.Result.Answer, snap.Result.Probability)

Interactive front-ends create a session with NewSession and drive it through Submit,
Rerun and Reset, rendering Snapshot or reacting to domain.Hooks. Servers use Manager to
keep many sessions addressable by ID.
*/
package qx32
