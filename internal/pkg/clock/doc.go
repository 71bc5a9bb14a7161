// Package clock abstracts the current time behind the Clocker interface.
//
// Expiry windows and cooldowns all read the clock through this interface,
// which lets tests pin the time and assert exact deadlines.
package clock
