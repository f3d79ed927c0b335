package services

// Local serves both remote contracts in-process, for embedding the store in
// the same binary as the editors.
type Local struct {
	*Sequence
	*Workflow
}

func NewLocal(sequences *Sequence, workflows *Workflow) Local {
	return Local{Sequence: sequences, Workflow: workflows}
}
