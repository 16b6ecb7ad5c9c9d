// Package sequence maintains the Sparkplug B message counters.
//
// Two counters exist per session:
//
//   - seq: the 0..255 wrapping payload sequence number stamped on every
//     BIRTH and DATA message. NBIRTH resets it to 0; NDEATH carries none.
//   - bdSeq: the birth/death sequence tying an NBIRTH to the NDEATH
//     registered as the MQTT will for the same session. It increments on
//     every connection attempt, wrapping 255 to 0.
//
// Hosts reuse the seq counter for the NCMD/DCMD traffic they originate.
package sequence
