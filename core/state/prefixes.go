package state

import "veledger/crypto"

var (
	bankTokenPrefix      = []byte("bank/token/")
	bankTokenListKey     = []byte("bank/tokens")
	bankBalancePrefix    = []byte("bank/balance/")
	bankAllowancePrefix  = []byte("bank/allowance/")
	escrowLockPrefix     = []byte("voteescrow/lock/")
	escrowTotalsKey      = []byte("voteescrow/totals")
	escrowSettingsKey    = []byte("voteescrow/settings")
	rewardTokenListKey   = []byte("multifee/tokens")
	rewardDataPrefix     = []byte("multifee/data/")
	rewardSnapshotPrefix = []byte("multifee/snapshot/")
	rewardSettingsKey    = []byte("multifee/settings")
)

func addressKey(prefix []byte, addrs ...crypto.Address) []byte {
	buf := make([]byte, 0, len(prefix)+len(addrs)*len(crypto.Address{}))
	buf = append(buf, prefix...)
	for _, addr := range addrs {
		buf = append(buf, addr[:]...)
	}
	return buf
}
