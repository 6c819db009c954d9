package main

import (
	"andromeda/core/host"
	"andromeda/native/account"
	"andromeda/native/addresslist"
	"andromeda/native/bootstrap"
	"andromeda/native/cw20"
	"andromeda/native/delay"
	"andromeda/native/exchange"
	"andromeda/native/message"
	"andromeda/native/sessionkey"
	"andromeda/native/spendlimit"
	"andromeda/native/splitter"
	"andromeda/native/unifier"
)

// registerCodes makes every native contract available for instantiation under
// the names used in deployment manifests.
func registerCodes(app *host.App) {
	app.RegisterCode("asset-unifier", unifier.Contract{})
	app.RegisterCode("gatekeeper-spendlimit", spendlimit.Contract{})
	app.RegisterCode("gatekeeper-message", message.Contract{})
	app.RegisterCode("gatekeeper-sessionkey", sessionkey.Contract{})
	app.RegisterCode("gatekeeper-delay", delay.Contract{})
	app.RegisterCode("user-account", account.Contract{})
	app.RegisterCode("liquidity-bootstrap", bootstrap.Contract{})
	app.RegisterCode("cw20", cw20.Contract{})
	app.RegisterCode("cw20-exchange", exchange.Contract{})
	app.RegisterCode("address-list", addresslist.Contract{})
	app.RegisterCode("set-amount-splitter", splitter.Contract{})
}
