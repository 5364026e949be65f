package db

// ZeroAccount is the canonical unset address.
const ZeroAccount = "0x0000000000000000000000000000000000000000"

// IsZeroAccount reports whether an account value means "not set".
func IsZeroAccount(account string) bool {
	return account == "" || account == ZeroAccount
}
