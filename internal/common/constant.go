package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// TokenFieldName is the legacy body/query field some clients use to send
// the token instead of the Authorization header.
const TokenFieldName = "_token"

// VerificationCodeDigits is the length of locally generated verification codes.
const VerificationCodeDigits = 6
