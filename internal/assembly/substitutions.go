package assembly

// DefaultSubstitutions lists, per item type, the types that may stand in for
// it, most compatible first. MCQ and cloze are each other's first choice;
// the rest follow response format (selected vs. produced answers) and then
// skill overlap. Every type lists all five others so the table is total.
var DefaultSubstitutions = map[ItemType][]ItemType{
	TypeMCQ:             {TypeCloze, TypeMatching, TypeReadingQ, TypeErrorCorrection, TypeWritingTask},
	TypeCloze:           {TypeMCQ, TypeErrorCorrection, TypeMatching, TypeReadingQ, TypeWritingTask},
	TypeErrorCorrection: {TypeCloze, TypeMCQ, TypeWritingTask, TypeMatching, TypeReadingQ},
	TypeMatching:        {TypeMCQ, TypeCloze, TypeReadingQ, TypeErrorCorrection, TypeWritingTask},
	TypeReadingQ:        {TypeMCQ, TypeMatching, TypeCloze, TypeErrorCorrection, TypeWritingTask},
	TypeWritingTask:     {TypeErrorCorrection, TypeCloze, TypeReadingQ, TypeMCQ, TypeMatching},
}

// substitutesFor returns the preference list for t. Types missing from the
// table fall back to the canonical order.
func substitutesFor(table map[ItemType][]ItemType, t ItemType) []ItemType {
	if subs, ok := table[t]; ok {
		return subs
	}
	out := make([]ItemType, 0, len(ItemTypes))
	for _, k := range ItemTypes {
		if k != t {
			out = append(out, k)
		}
	}
	return out
}
