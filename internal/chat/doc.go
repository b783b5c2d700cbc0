// Package chat implements the realtime messaging core: the websocket
// connection lifecycle, the per-conversation message store, the roster
// cache and the debounced user directory, tied together by Session.
//
// Conn owns exactly one socket at a time. Every bind bumps a generation
// counter; reads, dial results and retry timers from an older generation
// are discarded, so a rapid rebind can never deliver frames into the
// wrong conversation. Server-initiated closes in the 4xxx range that
// indicate a non-transient condition (bad token, restricted account,
// unknown peer) stop the reconnect loop; everything else retries after a
// fixed delay.
package chat
