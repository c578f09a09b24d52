/*package error reports fatal errors from the command line tool. Library
packages return errors; these functions are only for main, where the
remaining question is how to tell the user.*/
package error

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
)

// External reports an error and exits. It is for errors the user can fix by
// changing their configuration, data, or environment. It has the same
// signature as the fmt.*printf() functions.
func External(format string, a ...interface{}) {
	log.Printf("pynbody exited early with the following error:\n"+format,
		a...)
	os.Exit(1)
}

// Internal reports an error with a stack trace and exits. It is for errors
// which require a code dive to fix. It has the same signature as the
// fmt.*printf() functions.
func Internal(format string, a ...interface{}) {
	log.Println("pynbody exited early with the following error:")
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n\n")
	debug.PrintStack()
	os.Exit(1)
}
