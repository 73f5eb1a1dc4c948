/* LMR trunking control channel decoder */
package main

import (
	lmrdecode "github.com/doismellburning/lmrdecode/src"
)

func main() {
	lmrdecode.DecodeMain()
}
