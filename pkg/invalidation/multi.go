package invalidation

import (
	"context"
	"errors"
)

// MultiPublisher publishes to every wrapped publisher and joins their errors.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, signal Signal) error {
	var errs []error

	for _, p := range m {
		if err := p.Publish(ctx, signal); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
