package protocol

import (
	dErrors "finwell/pkg/domain-errors"
)

var (
	errRecordNotFound  = dErrors.New(dErrors.CodeNotFound, "record not found")
	errAlreadyRevealed = dErrors.New(dErrors.CodeConflict, "record already revealed")
	errNoScore         = dErrors.New(dErrors.CodeNotFound, "no score available")
	errScoreReplaced   = dErrors.New(dErrors.CodeConflict, "score was replaced while its decryption was pending")
)

// oracleError keeps coded oracle failures and marks anything else as the
// oracle being unavailable.
func oracleError(err error) error {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "encryption oracle request failed")
}

// proofError reports every verification failure as an invalid proof.
func proofError(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvalidProof) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInvalidProof, "decryption proof rejected")
}
