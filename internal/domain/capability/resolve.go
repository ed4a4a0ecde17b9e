package capability

import "fmt"

// ResolveAs resolves a capability and asserts the provider to T.
func ResolveAs[T any](r *Registry, id string) (T, error) {
	var zero T
	provider, err := r.Resolve(id)
	if err != nil {
		return zero, err
	}
	typed, ok := provider.(T)
	if !ok {
		return zero, fmt.Errorf("capability %s has unexpected type %T", id, provider)
	}
	return typed, nil
}

// ResolveVersionAs resolves a capability with a version minimum and
// asserts the provider to T.
func ResolveVersionAs[T any](r *Registry, id, minVersion string) (T, error) {
	var zero T
	provider, err := r.ResolveVersion(id, minVersion)
	if err != nil {
		return zero, err
	}
	typed, ok := provider.(T)
	if !ok {
		return zero, fmt.Errorf("capability %s has unexpected type %T", id, provider)
	}
	return typed, nil
}
