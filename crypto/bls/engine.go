package bls

import (
	"context"

	"github.com/signatory-io/bls-core/logger"
	"github.com/signatory-io/bls-core/worker"
)

// Engine runs aggregation and verification operations. Every operation has a
// blocking form and an Async form with the same validation and result.
// Arguments of an Async call must not be used by the caller until the
// returned Future completes.
type Engine struct {
	conf *Config
	pool *worker.Pool
	log  logger.Logger
}

// NewEngine returns an engine using conf, pool and log. Nil values are
// replaced by DefaultConfig, the shared worker pool and the Nop logger.
func NewEngine(conf *Config, pool *worker.Pool, log logger.Logger) (*Engine, error) {
	conf = confOrDefault(conf)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		conf: conf,
		pool: pool,
		log:  logger.OrNop(log),
	}, nil
}

func (e *Engine) Config() *Config { return e.conf }

func run[T any](e *Engine, name string, op worker.Op[T]) (T, error) {
	log := e.log.With("op", name)
	res, err := worker.Run(op, log)
	if err != nil {
		log.Debugf("%v", err)
	}
	return res, err
}

func queue[T any](ctx context.Context, e *Engine, name string, op worker.Op[T]) *worker.Future[T] {
	return worker.Queue(ctx, e.pool, op, e.log.With("op", name))
}

// AggregatePublicKeys adds up the keys. An empty list is an error.
func (e *Engine) AggregatePublicKeys(keys []Arg) (*PublicKey, error) {
	return run(e, "AggregatePublicKeys", worker.Op[*PublicKey](&aggregatePublicKeysOp{keys: keys}))
}

func (e *Engine) AggregatePublicKeysAsync(ctx context.Context, keys []Arg) *worker.Future[*PublicKey] {
	return queue(ctx, e, "AggregatePublicKeys", worker.Op[*PublicKey](&aggregatePublicKeysOp{keys: keys}))
}

// AggregateSignatures adds up the signatures. An empty list is an error.
func (e *Engine) AggregateSignatures(sigs []Arg) (*Signature, error) {
	return run(e, "AggregateSignatures", worker.Op[*Signature](&aggregateSignaturesOp{sigs: sigs}))
}

func (e *Engine) AggregateSignaturesAsync(ctx context.Context, sigs []Arg) *worker.Future[*Signature] {
	return queue(ctx, e, "AggregateSignatures", worker.Op[*Signature](&aggregateSignaturesOp{sigs: sigs}))
}

// AggregateVerify verifies sig against distinct message and public key pairs.
// A failed verification is reported as false with a nil error. With no pairs
// the result is true if sig is the point at infinity.
func (e *Engine) AggregateVerify(msgs [][]byte, keys []Arg, sig Arg) (bool, error) {
	return run(e, "AggregateVerify", worker.Op[bool](e.aggregateVerifyOp(msgs, keys, sig)))
}

func (e *Engine) AggregateVerifyAsync(ctx context.Context, msgs [][]byte, keys []Arg, sig Arg) *worker.Future[bool] {
	return queue(ctx, e, "AggregateVerify", worker.Op[bool](e.aggregateVerifyOp(msgs, keys, sig)))
}

func (e *Engine) aggregateVerifyOp(msgs [][]byte, keys []Arg, sig Arg) *aggregateVerifyOp {
	return &aggregateVerifyOp{conf: e.conf, msgs: msgs, keys: keys, sig: sig}
}

// Verify verifies a single signature
func (e *Engine) Verify(msg []byte, key Arg, sig Arg) (bool, error) {
	return run(e, "Verify", worker.Op[bool](e.aggregateVerifyOp([][]byte{msg}, []Arg{key}, sig)))
}

func (e *Engine) VerifyAsync(ctx context.Context, msg []byte, key Arg, sig Arg) *worker.Future[bool] {
	return queue(ctx, e, "Verify", worker.Op[bool](e.aggregateVerifyOp([][]byte{msg}, []Arg{key}, sig)))
}

// FastAggregateVerify verifies sig produced by all keys over the same message
func (e *Engine) FastAggregateVerify(msg []byte, keys []Arg, sig Arg) (bool, error) {
	return run(e, "FastAggregateVerify", worker.Op[bool](&fastAggregateVerifyOp{conf: e.conf, msg: msg, keys: keys, sig: sig}))
}

func (e *Engine) FastAggregateVerifyAsync(ctx context.Context, msg []byte, keys []Arg, sig Arg) *worker.Future[bool] {
	return queue(ctx, e, "FastAggregateVerify", worker.Op[bool](&fastAggregateVerifyOp{conf: e.conf, msg: msg, keys: keys, sig: sig}))
}

// VerifyMultipleAggregateSignatures verifies independent sets in one pairing.
// Each set is blinded by its own random scalar so that invalid sets can't
// cancel each other out. An empty batch is false.
func (e *Engine) VerifyMultipleAggregateSignatures(sets []*SignatureSet) (bool, error) {
	return run(e, "VerifyMultipleAggregateSignatures", worker.Op[bool](&verifyMultipleOp{conf: e.conf, sets: sets}))
}

func (e *Engine) VerifyMultipleAggregateSignaturesAsync(ctx context.Context, sets []*SignatureSet) *worker.Future[bool] {
	return queue(ctx, e, "VerifyMultipleAggregateSignatures", worker.Op[bool](&verifyMultipleOp{conf: e.conf, sets: sets}))
}

// AggregateWithRandomness multiplies every pair by its own random scalar and
// returns the aggregated public key and signature
func (e *Engine) AggregateWithRandomness(sets []*AggregationSet) (*AggregatedSet, error) {
	return run(e, "AggregateWithRandomness", worker.Op[*AggregatedSet](&aggregateWithRandomnessOp{conf: e.conf, sets: sets}))
}

func (e *Engine) AggregateWithRandomnessAsync(ctx context.Context, sets []*AggregationSet) *worker.Future[*AggregatedSet] {
	return queue(ctx, e, "AggregateWithRandomness", worker.Op[*AggregatedSet](&aggregateWithRandomnessOp{conf: e.conf, sets: sets}))
}

var defaultEngine = &Engine{conf: &defaultConfig, log: logger.Nop}

func AggregatePublicKeys(keys []Arg) (*PublicKey, error) { return defaultEngine.AggregatePublicKeys(keys) }
func AggregateSignatures(sigs []Arg) (*Signature, error) { return defaultEngine.AggregateSignatures(sigs) }

func AggregateVerify(msgs [][]byte, keys []Arg, sig Arg) (bool, error) {
	return defaultEngine.AggregateVerify(msgs, keys, sig)
}

func Verify(msg []byte, key Arg, sig Arg) (bool, error) { return defaultEngine.Verify(msg, key, sig) }

func FastAggregateVerify(msg []byte, keys []Arg, sig Arg) (bool, error) {
	return defaultEngine.FastAggregateVerify(msg, keys, sig)
}

func VerifyMultipleAggregateSignatures(sets []*SignatureSet) (bool, error) {
	return defaultEngine.VerifyMultipleAggregateSignatures(sets)
}
