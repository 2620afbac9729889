// Command colorforge renders colorized scoreboard product images and
// manages the batch render queue.
package main
