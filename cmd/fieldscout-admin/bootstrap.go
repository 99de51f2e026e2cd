package main

import (
	"context"
	"fmt"

	app "github.com/okian/fieldscout/internal/app"
)

type bootstrapCmd struct {
	Realm     string `help:"Name of the realm to create." default:"Admins"`
	Username  string `help:"Username of the super-admin." required:""`
	Password  string `help:"Password of the super-admin." env:"FIELDSCOUT_BOOTSTRAP_PASSWORD" required:""`
	FirstName string `help:"First name of the super-admin." default:"Super"`
	LastName  string `help:"Last name of the super-admin." default:"Admin"`
}

func (b *bootstrapCmd) Run(g *globalCmd) error {
	ctx := context.Background()
	svc, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	realm, user, err := svc.Bootstrap(ctx, b.Realm, app.NewUser{
		Username:  b.Username,
		Password:  b.Password,
		FirstName: b.FirstName,
		LastName:  b.LastName,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "created realm %q (id %d) with super-admin %q (id %d)\n", realm.Name, realm.ID, user.Username, user.ID)
	return nil
}
