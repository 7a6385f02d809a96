package domain

import "strings"

// ContextFlag is a named platform context with a lifespan in turns.
// A lifespan of zero removes the context.
type ContextFlag struct {
	Name     string `json:"name"`
	Lifespan int    `json:"lifespan"`
}

// Reply is the ordered set of texts and context changes produced by a turn.
type Reply struct {
	Texts    []string      `json:"texts,omitempty"`
	Contexts []ContextFlag `json:"contexts,omitempty"`
}

// Add appends a text to the reply.
func (r *Reply) Add(text string) {
	r.Texts = append(r.Texts, text)
}

// SetContext sets or replaces a context flag.
func (r *Reply) SetContext(name string, lifespan int) {
	for i := range r.Contexts {
		if r.Contexts[i].Name == name {
			r.Contexts[i].Lifespan = lifespan
			return
		}
	}
	r.Contexts = append(r.Contexts, ContextFlag{Name: name, Lifespan: lifespan})
}

// Merge appends the texts and contexts of other.
func (r *Reply) Merge(other Reply) {
	r.Texts = append(r.Texts, other.Texts...)
	for _, c := range other.Contexts {
		r.SetContext(c.Name, c.Lifespan)
	}
}

// Text joins all texts with a single space.
func (r Reply) Text() string {
	return strings.Join(r.Texts, " ")
}

// Empty reports whether the reply carries no text.
func (r Reply) Empty() bool {
	return len(r.Texts) == 0
}
