package zkp

import (
	"context"
	"io/fs"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/internal/metrics"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
	"github.com/id-Mask/smart-contracts/pkg/cache"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/reasoncodes"
	"github.com/pkg/errors"
)

const defaultCacheSize = 16

// Engine compiles, proves and verifies claim circuits for one oracle key.
// It is safe for concurrent use.
type Engine struct {
	oracle    sigchain.OracleKey
	keyDir    string
	cacheSize int64
	logger    *logger.Logger
	metrics   *metrics.Metrics
	compiled  cache.ICache[*CompiledCircuit]
}

type Option func(*Engine)

// WithKeyDir persists compiled keys under dir and reloads them on the next start.
func WithKeyDir(dir string) Option {
	return func(e *Engine) { e.keyDir = dir }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithCacheSize(size int64) Option {
	return func(e *Engine) { e.cacheSize = size }
}

func NewEngine(oracle sigchain.OracleKey, opts ...Option) *Engine {
	e := &Engine{
		oracle:    oracle,
		cacheSize: defaultCacheSize,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.compiled = cache.NewInMemoryCache[*CompiledCircuit](e.cacheSize, 0)
	return e
}

func (e *Engine) Oracle() sigchain.OracleKey {
	return e.oracle
}

// Compile returns the compiled circuit, building it at most once per process.
func (e *Engine) Compile(ctx context.Context, id claims.CircuitID) (*CompiledCircuit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	def, err := claims.Lookup(id)
	if err != nil {
		return nil, err
	}

	key := id.String() + "/" + e.oracle.String()
	if c, ok := e.compiled.Get(key); ok {
		e.metrics.IncrementCacheLookup(true)
		return c, nil
	}
	e.metrics.IncrementCacheLookup(false)

	return runCtx(ctx, func() (*CompiledCircuit, error) {
		return e.compiled.GetOrLoad(key, func() (*CompiledCircuit, error) {
			return e.load(def)
		})
	})
}

func (e *Engine) load(def claims.Definition) (*CompiledCircuit, error) {
	start := time.Now()
	ccs, fp, err := compileCCS(def, e.oracle)
	if err != nil {
		return nil, err
	}

	if e.keyDir != "" {
		c, err := loadKeys(e.keyDir, def.ID, e.oracle, ccs, fp)
		if err == nil {
			e.logger.Infof("Loaded keys for %s (%s) from %s", def.ID, fp, e.keyDir)
			return c, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warnf("Ignoring unreadable keys for %s (%s): %v", def.ID, fp, err)
		}
	}

	c, err := setup(def.ID, e.oracle, ccs, fp)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveCompile(def.ID.String(), time.Since(start))
	e.logger.Infof("Compiled %s (%s): %d constraints in %s", def.ID, fp, c.CCS.GetNbConstraints(), time.Since(start))

	if e.keyDir != "" {
		if err := c.save(e.keyDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// VerifyingKey resolves the server-side key for a circuit.
func (e *Engine) VerifyingKey(ctx context.Context, id claims.CircuitID) (groth16.VerifyingKey, error) {
	c, err := e.Compile(ctx, id)
	if err != nil {
		return nil, reasoncodes.New(reasoncodes.CodeOf(err, reasoncodes.ErrVerifierResolution), err)
	}
	return c.VK, nil
}

// Prove validates the claim off-circuit, then proves it. A cancelled ctx
// stops the wait, not the prover.
func (e *Engine) Prove(ctx context.Context, req claims.Request) (*ZkpResult, error) {
	id := req.CircuitID()
	if err := req.Validate(e.oracle); err != nil {
		e.metrics.IncrementOutcome("prove", id.String(), reasoncodes.CodeOf(err, reasoncodes.ErrProofGeneration).String())
		return nil, err
	}

	compiled, err := e.Compile(ctx, id)
	if err != nil {
		return nil, err
	}

	assignment, err := req.Assignment()
	if err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrProofGeneration, err)
	}

	result, err := runCtx(ctx, func() (*ZkpResult, error) {
		start := time.Now()
		defer func() { e.metrics.ObserveProve(id.String(), time.Since(start)) }()
		return prove(compiled, assignment)
	})
	if err != nil {
		if ctx.Err() == nil {
			e.metrics.IncrementOutcome("prove", id.String(), reasoncodes.ErrProofGeneration.String())
		}
		return nil, err
	}

	e.metrics.IncrementOutcome("prove", id.String(), "ok")
	e.logger.Debugf("Proved %s", id)
	return result, nil
}

// Verify checks a proof against the verifying key it carries.
func (e *Engine) Verify(result *ZkpResult) error {
	start := time.Now()
	err := result.Verify()
	e.metrics.ObserveVerify(result.CircuitID.String(), time.Since(start))

	outcome := "ok"
	if err != nil {
		outcome = reasoncodes.CodeOf(err, reasoncodes.ErrProofVerification).String()
	}
	e.metrics.IncrementOutcome("verify", result.CircuitID.String(), outcome)
	return err
}

func prove(c *CompiledCircuit, assignment frontend.Circuit) (*ZkpResult, error) {
	// 3. Assign inputs
	fullWitness, err := frontend.NewWitness(assignment, ElipticalCurveID.ScalarField())
	if err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrProofGeneration, errors.Wrap(err, "build witness"))
	}

	// 4. Create the proof
	proof, err := groth16.Prove(c.CCS, c.PK, fullWitness)
	if err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrProofGeneration, errors.Wrap(err, "prove"))
	}

	// 5. Get the public witness
	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, reasoncodes.New(reasoncodes.ErrProofGeneration, errors.Wrap(err, "public witness"))
	}

	def, err := claims.Lookup(c.ID)
	if err != nil {
		return nil, err
	}

	return &ZkpResult{
		CircuitID:      c.ID,
		Proof:          proof,
		VerifyingKey:   c.VK,
		PublicWitness:  publicWitness,
		NbPublicInputs: def.NbPublicInputs,
	}, nil
}

type outcome[T any] struct {
	value T
	err   error
}

// runCtx runs fn on its own goroutine and returns early when ctx is done.
func runCtx[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn()
		done <- outcome[T]{v, err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
