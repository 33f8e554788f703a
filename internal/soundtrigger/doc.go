// Package soundtrigger plays sounds on request from games running on a hub.
//
// Games send UDP datagrams of the form "@[<timestamp>][play]<<name>>", for
// example "@[1234][play]<blue>". Each trigger is usually sent more than once
// with the same timestamp; only the first copy is acted on. The name is
// mapped to a file through a Resolver and played by a Player, by default an
// external command line player.
package soundtrigger
