package ntat

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IssueBatch answers many queries from the registered client in parallel,
// bounded by WithBatchLimit. Responses keep the order of queries. The first
// rejected query cancels the batch and its index is attached to the error.
func (s *Server) IssueBatch(ctx context.Context, queries []*Query) ([]*Response, error) {
	start := time.Now()
	responses := make([]*Response, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.batchLimit)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp, err := s.issue(q)
			if err != nil {
				if te, ok := err.(*TokenError); ok {
					return te.WithContext("index", i)
				}
				return err
			}
			responses[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn("batch issuance failed", zap.Int("size", len(queries)), zap.String("code", errorCode(err)))
		s.opts.audit.OnIssuance(NewAuditEventBuilder(AuditEventQueryRejected, ReasonProofFailure).
			WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).WithError(err).
			BuildIssuance(time.Since(start), len(queries)))
		return nil, err
	}

	s.logger.Debug("batch issued", zap.Int("size", len(queries)))
	s.opts.audit.OnIssuance(NewAuditEventBuilder(AuditEventTokenIssued, ReasonProtocolStep).
		WithSuite(s.pp.Suite.Name()).WithRole(RoleServer).BuildIssuance(time.Since(start), len(queries)))
	return responses, nil
}
