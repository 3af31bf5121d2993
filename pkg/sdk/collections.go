package ragd

import (
	"context"
	"time"

	"github.com/nabla-works/ragd/internal/domain"
)

// CollectionService exposes read access to index collections.
type CollectionService struct {
	svc collectionUseCase
	obs *observer
}

// List returns the state of every collection the index serves.
func (s *CollectionService) List(ctx context.Context) (infos []CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("collection_list", start, err) }()

	domInfos, _, err := s.svc.Infos(ctx)
	if err != nil {
		return nil, err
	}
	infos = make([]CollectionInfo, len(domInfos))
	for i, info := range domInfos {
		infos[i] = collectionFromDomain(info)
	}
	return infos, nil
}

// Info returns the state of one collection. An empty name selects the
// configured default.
func (s *CollectionService) Info(ctx context.Context, name string) (info CollectionInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("collection_info", start, err) }()

	domInfo, err := s.svc.Info(ctx, name)
	if err != nil {
		return CollectionInfo{}, err
	}
	return collectionFromDomain(domInfo), nil
}

func collectionFromDomain(info domain.CollectionInfo) CollectionInfo {
	return CollectionInfo{
		Name:        info.Name,
		PointsCount: info.PointsCount,
		Dimension:   info.Dimension,
		Status:      info.Status,
	}
}
