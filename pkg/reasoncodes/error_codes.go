package reasoncodes

type ReasonCode string

const (
	ErrUnmarshal          ReasonCode = "UnmarshalError"
	ErrVerifierResolution ReasonCode = "VerifierResolutionError"
	ErrProofGeneration    ReasonCode = "ProofGenerationError"
	ErrProofVerification  ReasonCode = "ProofVerificationError"
	ErrSolana             ReasonCode = "SolanaBlockchainError"
	ErrLedger             ReasonCode = "LedgerError"

	// claim pre-flight failures, each one would make the circuit unsatisfiable
	ErrInvalidSignature   ReasonCode = "InvalidSignatureError"
	ErrMalformedInput     ReasonCode = "MalformedIdentifierError"
	ErrClaimOutOfRange    ReasonCode = "ClaimOutOfRangeError"
	ErrDateOrder          ReasonCode = "DateOrderError"
	ErrPredicateNotMet    ReasonCode = "PredicateNotMetError"
	ErrSanctionsMatched   ReasonCode = "SanctionsMatchedError"
	ErrUnsupportedCircuit ReasonCode = "UnsupportedCircuitError"
)

func (rc ReasonCode) String() string {
	return string(rc)
}
