package vault

import (
	"context"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/tags"
)

// ListTags returns the catalog. Binding names missing from it are
// registered first and the repaired document is persisted.
func (s *Service) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	var out []*domain.Tag
	err := s.update(ctx, func(doc *domain.Document) error {
		added := tags.Reconcile(doc, s.now())
		out = doc.Tags
		if added == 0 {
			return errUnchanged
		}
		s.log.Info("tag catalog reconciled", logger.Int("added", added))
		return nil
	})
	return out, err
}

// CreateTag returns the tag named name, creating it when missing.
func (s *Service) CreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	var out *domain.Tag
	err := s.update(ctx, func(doc *domain.Document) error {
		t, created, err := tags.Ensure(doc, name, s.now())
		if err != nil {
			return err
		}
		out = t
		if !created {
			return errUnchanged
		}
		return nil
	})
	return out, err
}

func (s *Service) RenameTag(ctx context.Context, id int, name string) (*domain.Tag, error) {
	var out *domain.Tag
	err := s.update(ctx, func(doc *domain.Document) error {
		if err := tags.Rename(doc, id, name); err != nil {
			return err
		}
		out = tags.Find(doc, id)
		return nil
	})
	return out, err
}

func (s *Service) DeleteTag(ctx context.Context, id int) error {
	return s.update(ctx, func(doc *domain.Document) error {
		return tags.Delete(doc, id)
	})
}

// TagUsageCount is the number of records bound to tag id.
func (s *Service) TagUsageCount(ctx context.Context, id int) (int, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return 0, err
	}
	if tags.Find(doc, id) == nil {
		return 0, domain.NotFoundf("tag %d", id)
	}
	return tags.UsageCount(doc, id), nil
}
