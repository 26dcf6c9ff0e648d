package zkp_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/metrics"
	"github.com/id-Mask/smart-contracts/internal/mock"
	"github.com/id-Mask/smart-contracts/internal/zkp"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProveRejectsUnprovableClaim(t *testing.T) {
	fx := mock.NewFixture()
	req, err := fx.SanctionsRequest(true)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	engine := zkp.NewEngine(fx.OracleKey(), zkp.WithMetrics(m))

	_, err = engine.Prove(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, reasoncodes.ErrSanctionsMatched, reasoncodes.CodeOf(err, ""))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("prove", "ProofOfSanctions", "SanctionsMatchedError")))
}

func TestCompileHonorsCancelledContext(t *testing.T) {
	engine := zkp.NewEngine(mock.NewFixture().OracleKey())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Compile(ctx, claims.ProofOfIdentity)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileUnknownCircuit(t *testing.T) {
	engine := zkp.NewEngine(mock.NewFixture().OracleKey())
	_, err := engine.VerifyingKey(context.Background(), claims.CircuitID("ProofOfWealth"))
	assert.Equal(t, reasoncodes.ErrUnsupportedCircuit, reasoncodes.CodeOf(err, ""))
}

func TestFromJSONRejectsMalformedInput(t *testing.T) {
	valid := zkp.ProofJSON{
		CircuitID:    claims.ProofOfIdentity.String(),
		Version:      claims.OutputVersion,
		PublicInput:  []string{},
		PublicOutput: make([]string, claims.OutputLength),
		Proof:        "",
	}
	for i := range valid.PublicOutput {
		valid.PublicOutput[i] = "0"
	}

	tests := []struct {
		name   string
		mutate func(p *zkp.ProofJSON)
		code   reasoncodes.ReasonCode
	}{
		{"unknown circuit", func(p *zkp.ProofJSON) { p.CircuitID = "ProofOfWealth" }, reasoncodes.ErrUnsupportedCircuit},
		{"wrong version", func(p *zkp.ProofJSON) { p.Version = 2 }, reasoncodes.ErrUnmarshal},
		{"extra input", func(p *zkp.ProofJSON) { p.PublicInput = []string{"18"} }, reasoncodes.ErrUnmarshal},
		{"short output", func(p *zkp.ProofJSON) { p.PublicOutput = p.PublicOutput[1:] }, reasoncodes.ErrUnmarshal},
		{"not decimal", func(p *zkp.ProofJSON) { p.PublicOutput = replaceAt(p.PublicOutput, 0, "0x01") }, reasoncodes.ErrUnmarshal},
		{"not a field element", func(p *zkp.ProofJSON) {
			p.PublicOutput = replaceAt(p.PublicOutput, 0, "21888242871839275222246405745257275088548364400416034343698204186575808495617")
		}, reasoncodes.ErrUnmarshal},
		{"bad proof encoding", func(p *zkp.ProofJSON) { p.Proof = "%%%" }, reasoncodes.ErrUnmarshal},
		{"truncated proof", func(p *zkp.ProofJSON) { p.Proof = "AAAA" }, reasoncodes.ErrUnmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			p.PublicOutput = append([]string{}, valid.PublicOutput...)
			tt.mutate(&p)

			_, err := zkp.FromJSON(p, nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, reasoncodes.CodeOf(err, ""))
		})
	}
}

func TestReconstructRejectsGarbage(t *testing.T) {
	_, err := zkp.ReconstructZkpResult([]byte{1, 2, 3})
	assert.Equal(t, reasoncodes.ErrUnmarshal, reasoncodes.CodeOf(err, ""))
}

func TestProveVerifyRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}

	fx := mock.NewFixture()
	req, err := fx.IdentityRequest()
	require.NoError(t, err)

	keyDir := t.TempDir()
	engine := zkp.NewEngine(fx.OracleKey(), zkp.WithKeyDir(keyDir))
	ctx := context.Background()

	result, err := engine.Prove(ctx, req)
	require.NoError(t, err)
	require.NoError(t, engine.Verify(result))

	expected, err := req.Output()
	require.NoError(t, err)
	got, err := result.Output()
	require.NoError(t, err)
	assert.Equal(t, expected.Fields(), got.Fields())

	t.Run("compile is memoized", func(t *testing.T) {
		a, err := engine.Compile(ctx, claims.ProofOfIdentity)
		require.NoError(t, err)
		b, err := engine.Compile(ctx, claims.ProofOfIdentity)
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("keys reload from disk", func(t *testing.T) {
		reloaded := zkp.NewEngine(fx.OracleKey(), zkp.WithKeyDir(keyDir))
		vk, err := reloaded.VerifyingKey(ctx, claims.ProofOfIdentity)
		require.NoError(t, err)

		original, err := zkp.VerifyingKeyBytes(result.VerifyingKey)
		require.NoError(t, err)
		again, err := zkp.VerifyingKeyBytes(vk)
		require.NoError(t, err)
		assert.Equal(t, original, again)
	})

	t.Run("json round trip", func(t *testing.T) {
		p, err := result.ToJSON()
		require.NoError(t, err)
		assert.Empty(t, p.PublicInput)
		assert.Len(t, p.PublicOutput, claims.OutputLength)

		out, err := p.DecodeOutput()
		require.NoError(t, err)
		assert.Equal(t, expected.Fields(), out.Fields())

		back, err := zkp.FromJSON(p, result.VerifyingKey)
		require.NoError(t, err)
		require.NoError(t, engine.Verify(back))

		p.PublicOutput = replaceAt(p.PublicOutput, 0, "2")
		tampered, err := zkp.FromJSON(p, result.VerifyingKey)
		require.NoError(t, err)
		err = engine.Verify(tampered)
		assert.Equal(t, reasoncodes.ErrProofVerification, reasoncodes.CodeOf(err, ""))
	})

	t.Run("borsh round trip", func(t *testing.T) {
		data, err := result.SerializeBorsh()
		require.NoError(t, err)

		back, err := zkp.ReconstructZkpResult(data)
		require.NoError(t, err)
		assert.Equal(t, claims.ProofOfIdentity, back.CircuitID)
		require.NoError(t, back.Verify())
	})

	t.Run("verifying key export", func(t *testing.T) {
		c, err := engine.Compile(ctx, claims.ProofOfIdentity)
		require.NoError(t, err)

		var vk bytes.Buffer
		require.NoError(t, c.ExportVerifyingKey(&vk))
		_, err = zkp.ParseVerifyingKey(vk.Bytes())
		require.NoError(t, err)
	})
}

func replaceAt(values []string, i int, v string) []string {
	out := append([]string{}, values...)
	out[i] = v
	return out
}
