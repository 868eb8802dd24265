package rank

// SynthesizeQuery combines a persona role and task into the query used for
// relevance scoring. Inputs are used verbatim.
func SynthesizeQuery(personaRole, taskDescription string) string {
	return personaRole + " needs to: " + taskDescription
}
