package domain

import "errors"

var (
	// Group errors
	ErrGroupNotFound   = errors.New("group not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrNotGroupMember  = errors.New("user is not a member of the group")
	ErrDuplicateMember = errors.New("user is already a member of the group")

	// Expense errors
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPercentageSum = errors.New("percentages must sum to 100")
	ErrNoParticipants       = errors.New("expense must have at least one participant")
	ErrSplitMismatch        = errors.New("split amounts do not add up to expense amount")
	ErrUnknownExpense       = errors.New("split references an unknown expense")
	ErrTooSmallToSplit      = errors.New("amount is too small to split between participants")

	// Settlement errors
	ErrSettlementNotFound          = errors.New("settlement not found")
	ErrSelfSettlement              = errors.New("payer and payee must differ")
	ErrIllegalSettlementTransition = errors.New("illegal settlement status transition")

	// Sync errors
	ErrSyncMetadataNotFound  = errors.New("sync metadata not found")
	ErrIllegalSyncTransition = errors.New("illegal sync status transition")
	ErrVersionRegression     = errors.New("sync version cannot decrease")
	ErrSyncInProgress        = errors.New("sync already in progress for group")
	ErrSyncConflict          = errors.New("local and remote copies have diverged")
	ErrSyncDisabled          = errors.New("sync is disabled for group")
	ErrInvalidSnapshot       = errors.New("invalid group snapshot")

	// Remote store errors
	ErrRemoteNotFound  = errors.New("remote file not found")
	ErrRemoteForbidden = errors.New("remote file access forbidden")
	ErrRemoteTransient = errors.New("transient remote storage failure")

	// Identity errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
