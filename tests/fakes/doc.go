// Package fakes provides test doubles for the AWS clients paramdocs talks to.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior.
//
// Usage:
//
//	ssmFake := fakes.NewFakeSSMClient()
//	ssmFake.AddParameter("/acme/mail/SmtpConfig/Password")
//	checker, _ := audit.NewSSMChecker(ctx, audit.SSMConfig{},
//	    audit.WithSSMClient(ssmFake), audit.WithSTSClient(fakes.NewFakeSTSClient()))
package fakes
