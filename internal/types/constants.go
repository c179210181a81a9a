package types

const ContextUserKey = "user"

const ContextClaimsKey = "claims"

const ContextRequestIDKey = "request_id"
