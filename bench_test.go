package ntat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func BenchmarkQuery(b *testing.B) {
	for _, st := range SupportedSuites() {
		b.Run(string(st), func(b *testing.B) {
			env := newTestEnv(b, st, "bench query")
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := env.client.Query()
				require.NoError(b, err)
				env.client.Abandon()
			}
		})
	}
}

func BenchmarkIssue(b *testing.B) {
	for _, st := range SupportedSuites() {
		b.Run(string(st), func(b *testing.B) {
			env := newTestEnv(b, st, "bench issue")
			q, err := env.client.Query()
			require.NoError(b, err)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := env.server.Issue(q)
				require.NoError(b, err)
			}
		})
	}
}

func BenchmarkFinal(b *testing.B) {
	for _, st := range SupportedSuites() {
		b.Run(string(st), func(b *testing.B) {
			env := newTestEnv(b, st, "bench final")
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				q, err := env.client.Query()
				require.NoError(b, err)
				resp, err := env.server.Issue(q)
				require.NoError(b, err)
				b.StartTimer()
				_, err = env.client.Final(resp)
				require.NoError(b, err)
			}
		})
	}
}

func BenchmarkRedemption(b *testing.B) {
	ctx := context.Background()
	for _, st := range SupportedSuites() {
		b.Run(string(st), func(b *testing.B) {
			env := newTestEnv(b, st, "bench redemption")
			tokens := make([]*Token, b.N)
			for i := range tokens {
				tokens[i] = env.issue(b)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ok, err := redeem(b, ctx, env.client, env.server, tokens[i])
				require.NoError(b, err)
				require.True(b, ok)
			}
		})
	}
}

func BenchmarkIssueBatch(b *testing.B) {
	ctx := context.Background()
	env := newTestEnv(b, Ristretto255, "bench batch")
	queries := make([]*Query, 64)
	for i := range queries {
		q, err := env.client.Query()
		require.NoError(b, err)
		env.client.Abandon()
		queries[i] = q
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := env.server.IssueBatch(ctx, queries)
		require.NoError(b, err)
	}
}
