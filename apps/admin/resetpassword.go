package main

import (
	"time"

	"github.com/trezcool/sikap/core"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	stf, err := cli.stfRepo.GetStaffByUsernameOrEmail(core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err := stf.SetPassword(pwd); err != nil {
		return err
	}
	stf.UpdatedAt = time.Now().UTC()
	_, err = cli.stfRepo.UpdateStaff(stf, nil)
	return err
}
