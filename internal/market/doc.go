// Package market is the trading ruleset played on the engine.
//
// The player buys and sells goods at the day's prices and travels to move
// the calendar forward, which re-prices every good within its volatility
// band. Three random events layer in on top: a dealer scam may short a
// purchase, and a price surge or a lucky find may follow a travel. Their
// chances come from config.RandomEvents.
//
// Every rule failure is an *engine.ValidationError, so a rejected action
// leaves the game exactly as it was.
package market
