package enrich

import "context"

// Fake is a test enricher with canned output or an injected error.
type Fake struct {
	Annotation *Annotation
	Err        error
	Calls      int
}

func NewFake(validation, citation string) *Fake {
	return &Fake{Annotation: &Annotation{Validation: validation, Citation: citation}}
}

func (f *Fake) Enrich(ctx context.Context, categoryID, clause string) (*Annotation, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Annotation, nil
}
