// Package redis holds the Redis backed pieces shared by every instance:
// debounce keys, per action rate limits, single use reset tokens, leader
// leases and the notification fan-out channel.
package redis
