package db

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/radityaferdi/otpgate/internal/auth/entity"
)

// ReplaceOTP removes any pending record for the phone number and inserts the
// new one in a single transaction. An advisory lock on the phone number
// serializes concurrent issuance so two requests cannot both survive the
// delete-then-insert.
func (s *DB) ReplaceOTP(ctx context.Context, in entity.NewOTP) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceOTP")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, in.PhoneNumber); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM auth_otps WHERE phone_number = $1`, in.PhoneNumber); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO auth_otps (id, phone_number, code_hash, attempts, metadata, expires_at)
		VALUES ($1, $2, $3, 0, $4, $5)`,
		in.ID, in.PhoneNumber, in.CodeHash, in.Metadata, in.ExpiresAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// ConsumeOTPAttempt applies one verification attempt against the pending
// record under a row lock. The record is deleted on every terminal outcome
// (match, expiry, exhaustion) and kept only on a mismatch that still has
// attempt budget left.
func (s *DB) ConsumeOTPAttempt(ctx context.Context, in entity.OTPAttempt) (res *entity.OTPAttemptResult, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeOTPAttempt")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	var (
		id        int64
		codeHash  string
		attempts  int16
		expiresAt time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT id, code_hash, attempts, expires_at
		FROM auth_otps
		WHERE phone_number = $1
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`,
		in.PhoneNumber,
	).Scan(&id, &codeHash, &attempts, &expiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	deleteRecord := func() error {
		_, dErr := tx.Exec(ctx, `DELETE FROM auth_otps WHERE id = $1`, id)
		return s.mapError(dErr)
	}

	switch {
	case in.Now.After(expiresAt):
		if err = deleteRecord(); err != nil {
			return nil, err
		}
		res = &entity.OTPAttemptResult{Outcome: entity.OTPAttemptOutcomeExpired, Attempts: attempts}

	case attempts >= in.MaxAttempts:
		if err = deleteRecord(); err != nil {
			return nil, err
		}
		res = &entity.OTPAttemptResult{Outcome: entity.OTPAttemptOutcomeExhausted, Attempts: attempts}

	case subtle.ConstantTimeCompare([]byte(codeHash), []byte(in.CodeHash)) == 1:
		if err = deleteRecord(); err != nil {
			return nil, err
		}
		res = &entity.OTPAttemptResult{Outcome: entity.OTPAttemptOutcomeMatched, Attempts: attempts}

	default:
		attempts++
		if attempts >= in.MaxAttempts {
			if err = deleteRecord(); err != nil {
				return nil, err
			}
		} else {
			if _, err = tx.Exec(ctx, `UPDATE auth_otps SET attempts = $1 WHERE id = $2`, attempts, id); err != nil {
				return nil, s.mapError(err)
			}
		}
		res = &entity.OTPAttemptResult{Outcome: entity.OTPAttemptOutcomeMismatched, Attempts: attempts}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	return res, nil
}

func (s *DB) DeleteExpiredOTPs(ctx context.Context, now time.Time) (deleted int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredOTPs")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM auth_otps WHERE expires_at < $1`, now)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
