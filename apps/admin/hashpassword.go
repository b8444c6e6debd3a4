package main

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword prints a bcrypt digest suitable for the gateDigest config.
func (cli *commandLine) hashPassword(pwd string) error {
	digest, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, string(digest))
	return err
}
