package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"swarmpay/crypto"
)

func main() {
	out := flag.String("out", "", "write the key to an encrypted keystore file at this path")
	show := flag.Bool("show-private", false, "print the raw private key hex (dangerous)")
	flag.Parse()

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()

	fmt.Printf("address: %s\n", addr)
	fmt.Printf("address (hex): %x\n", addr.Bytes())
	if *show {
		fmt.Printf("private key: %s\n", hex.EncodeToString(key.Bytes()))
	}

	if *out == "" {
		if !*show {
			fmt.Fprintln(os.Stderr, "no -out given; key discarded (use -out or -show-private)")
			os.Exit(1)
		}
		return
	}

	passphrase, err := readPassphrase()
	if err != nil {
		fatalf("read passphrase: %v", err)
	}
	if err := crypto.SaveKey(*out, key, passphrase); err != nil {
		fatalf("write keystore: %v", err)
	}
	fmt.Printf("keystore written to %s\n", *out)
}

func readPassphrase() (string, error) {
	fmt.Fprint(os.Stderr, "passphrase: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "repeat passphrase: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passphrases do not match")
	}
	return string(first), nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
