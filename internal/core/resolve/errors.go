package resolve

import "fmt"

// MultipleEntitiesFoundError reports that a criteria lookup which required
// exactly one match returned several. It is never cached: a later change in
// the remote system may make the same lookup unambiguous.
type MultipleEntitiesFoundError struct {
	Resolver string
	Count    int
}

func (e *MultipleEntitiesFoundError) Error() string {
	return fmt.Sprintf("resolver %s: expected at most one entity, remote returned %d", e.Resolver, e.Count)
}
