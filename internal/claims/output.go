package claims

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/id-Mask/smart-contracts/internal/attribute"
	"github.com/id-Mask/smart-contracts/internal/sigchain"
)

// OutputVersion tags the positional layout below. Bump it on any change.
const OutputVersion = 1

// OutputLength is the number of public output elements of every claim.
const OutputLength = 6 + sigchain.DeviceLimbCount

// PublicOutput is the positional contract read by verifiers:
//
//	[0]    claim result
//	[1]    currentDate, YYYYMMDD
//	[2-3]  account holder key X, Y
//	[4-9]  device key limbs x0 x1 x2 y0 y1 y2
//	[10]   device id
//	[11]   isMockData
type PublicOutput struct {
	Result      frontend.Variable
	CurrentDate frontend.Variable
	HolderKeyX  frontend.Variable
	HolderKeyY  frontend.Variable
	DeviceKey   [sigchain.DeviceLimbCount]frontend.Variable
	DeviceID    frontend.Variable
	IsMockData  frontend.Variable
}

// Output is PublicOutput decoded at the API boundary.
type Output struct {
	Version     int
	Result      *big.Int
	CurrentDate uint64
	HolderKeyX  *big.Int
	HolderKeyY  *big.Int
	DeviceKey   [sigchain.DeviceLimbCount]*big.Int
	DeviceID    *big.Int
	IsMockData  bool
}

func newOutput(result *big.Int, currentDate uint64, isMock bool, holder attribute.CreatorAccount, pk attribute.PassKeys) (Output, error) {
	deviceID, err := pk.IDField()
	if err != nil {
		return Output{}, err
	}
	if pk.PublicKey == nil {
		return Output{}, fmt.Errorf("device public key missing")
	}
	return Output{
		Version:     OutputVersion,
		Result:      result,
		CurrentDate: currentDate,
		HolderKeyX:  holder.PublicKey.A.X.BigInt(new(big.Int)),
		HolderKeyY:  holder.PublicKey.A.Y.BigInt(new(big.Int)),
		DeviceKey:   sigchain.DeviceKeyLimbValues(pk.PublicKey),
		DeviceID:    deviceID,
		IsMockData:  isMock,
	}, nil
}

// Fields lays the output out in positional order.
func (o Output) Fields() []*big.Int {
	fields := make([]*big.Int, 0, OutputLength)
	fields = append(fields,
		o.Result,
		new(big.Int).SetUint64(o.CurrentDate),
		o.HolderKeyX,
		o.HolderKeyY,
	)
	fields = append(fields, o.DeviceKey[:]...)
	return append(fields, o.DeviceID, new(big.Int).SetUint64(attribute.BoolValue(o.IsMockData)))
}

// OutputFromFields decodes a positional public output.
func OutputFromFields(fields []*big.Int) (Output, error) {
	if len(fields) != OutputLength {
		return Output{}, fmt.Errorf("public output has %d elements, want %d", len(fields), OutputLength)
	}
	for i, f := range fields {
		if f == nil || f.Sign() < 0 || f.Cmp(fr.Modulus()) >= 0 {
			return Output{}, fmt.Errorf("public output element %d is not a field element", i)
		}
	}
	if !fields[1].IsUint64() {
		return Output{}, fmt.Errorf("currentDate out of range")
	}
	if fields[11].Cmp(big.NewInt(1)) > 0 {
		return Output{}, fmt.Errorf("isMockData must be 0 or 1")
	}

	o := Output{
		Version:     OutputVersion,
		Result:      fields[0],
		CurrentDate: fields[1].Uint64(),
		HolderKeyX:  fields[2],
		HolderKeyY:  fields[3],
		DeviceID:    fields[10],
		IsMockData:  fields[11].Sign() == 1,
	}
	copy(o.DeviceKey[:], fields[4:10])
	return o, nil
}

// DeviceKeyXY rebuilds the P-256 coordinates from the limbs.
func (o Output) DeviceKeyXY() (x, y *big.Int) {
	return sigchain.DeviceKeyFromLimbs(o.DeviceKey)
}

// Assignment is the witness form.
func (o Output) Assignment() PublicOutput {
	var out PublicOutput
	out.Result = o.Result
	out.CurrentDate = o.CurrentDate
	out.HolderKeyX = o.HolderKeyX
	out.HolderKeyY = o.HolderKeyY
	for i, l := range o.DeviceKey {
		out.DeviceKey[i] = l
	}
	out.DeviceID = o.DeviceID
	out.IsMockData = attribute.BoolValue(o.IsMockData)
	return out
}

type outputJson struct {
	Version     int      `json:"version"`
	Result      string   `json:"result"`
	CurrentDate uint64   `json:"currentDate"`
	HolderKey   []string `json:"holderPublicKey"`
	DeviceKey   []string `json:"devicePublicKey"`
	DeviceID    string   `json:"deviceId"`
	IsMockData  bool     `json:"isMockData"`
}

func (o Output) MarshalJSON() ([]byte, error) {
	device := make([]string, len(o.DeviceKey))
	for i, l := range o.DeviceKey {
		device[i] = decimal(l)
	}
	return json.Marshal(outputJson{
		Version:     o.Version,
		Result:      decimal(o.Result),
		CurrentDate: o.CurrentDate,
		HolderKey:   []string{decimal(o.HolderKeyX), decimal(o.HolderKeyY)},
		DeviceKey:   device,
		DeviceID:    decimal(o.DeviceID),
		IsMockData:  o.IsMockData,
	})
}

func (o *Output) UnmarshalJSON(data []byte) error {
	var j outputJson
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if len(j.HolderKey) != 2 || len(j.DeviceKey) != sigchain.DeviceLimbCount {
		return fmt.Errorf("output: malformed key arrays")
	}

	fields := []string{j.Result, fmt.Sprint(j.CurrentDate), j.HolderKey[0], j.HolderKey[1]}
	fields = append(fields, j.DeviceKey...)
	fields = append(fields, j.DeviceID, fmt.Sprint(attribute.BoolValue(j.IsMockData)))

	ints := make([]*big.Int, len(fields))
	for i, f := range fields {
		n, ok := new(big.Int).SetString(f, 10)
		if !ok {
			return fmt.Errorf("output: element %d: invalid decimal %q", i, f)
		}
		ints[i] = n
	}
	decoded, err := OutputFromFields(ints)
	if err != nil {
		return err
	}
	decoded.Version = j.Version
	*o = decoded
	return nil
}

func decimal(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// assertCommon binds the output fields every claim shares.
func (o *PublicOutput) assertCommon(api frontend.API, currentDate, isMockData frontend.Variable) {
	api.AssertIsBoolean(isMockData)
	api.AssertIsEqual(o.CurrentDate, currentDate)
	api.AssertIsEqual(o.IsMockData, isMockData)
}
