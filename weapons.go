package server

// Weapon identifies the reported firing mode of a hit.
type Weapon string

const (
	WeaponPistol  Weapon = "pistol"
	WeaponShotgun Weapon = "shotgun"
	WeaponSniper  Weapon = "sniper"
)

// weaponPointDamage is the per-weapon point cost charged to the target. The
// shooter is rewarded half the damage dealt, rounded down.
var weaponPointDamage = map[Weapon]int{
	WeaponPistol:  6,
	WeaponShotgun: 10,
	WeaponSniper:  15,
}

// ParseWeapon validates a weapon string received from the client.
func ParseWeapon(value string) (Weapon, bool) {
	switch Weapon(value) {
	case WeaponPistol, WeaponShotgun, WeaponSniper:
		return Weapon(value), true
	default:
		return "", false
	}
}

func (w Weapon) pointDamage() int {
	return weaponPointDamage[w]
}

func (w Weapon) pointReward() int {
	return weaponPointDamage[w] / 2
}
