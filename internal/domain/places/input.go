package places

import (
	"net/url"
)

// Input is a create or update request as it arrives from a form or JSON
// body. Both historical shapes are accepted: services with a nested or flat
// structured location, and servicesOffered with address, city, description
// and tags. List fields may be a comma-joined string or a list.
type Input struct {
	Name            any            `json:"name"`
	Type            any            `json:"type"`
	Services        any            `json:"services"`
	ServicesOffered any            `json:"servicesOffered"`
	Address         any            `json:"address"`
	City            any            `json:"city"`
	State           any            `json:"state"`
	Zip             any            `json:"zip"`
	Location        *LocationInput `json:"location"`
	Description     any            `json:"description"`
	Tags            any            `json:"tags"`
}

type LocationInput struct {
	Address any `json:"address"`
	City    any `json:"city"`
	State   any `json:"state"`
	Zip     any `json:"zip"`
}

// InputFromForm maps url-encoded form values onto Input. Repeated list keys
// are kept as a list; a single value is left as a (possibly comma-joined) string.
func InputFromForm(form url.Values) Input {
	in := Input{
		Name:        formValue(form, "name"),
		Type:        formValue(form, "type"),
		Address:     formValue(form, "address"),
		City:        formValue(form, "city"),
		State:       formValue(form, "state"),
		Zip:         formValue(form, "zip"),
		Description: formValue(form, "description"),
		Tags:        formList(form, "tags"),

		Services:        formList(form, "services"),
		ServicesOffered: formList(form, "servicesOffered"),
	}
	return in
}

func formValue(form url.Values, key string) any {
	if _, ok := form[key]; !ok {
		return nil
	}
	return form.Get(key)
}

func formList(form url.Values, key string) any {
	values, ok := form[key]
	if !ok {
		return nil
	}
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// Fields converts the input into the canonical field set. Only type checks
// happen here; trimming, sanitizing and limits are applied by NormalizeFields.
func (in Input) Fields() (Fields, error) {
	var (
		f   Fields
		err error
	)
	if f.Name, err = stringField(in.Name, "name"); err != nil {
		return Fields{}, err
	}
	if f.Type, err = stringField(in.Type, "type"); err != nil {
		return Fields{}, err
	}
	if f.Description, err = stringField(in.Description, "description"); err != nil {
		return Fields{}, err
	}

	address, city, state, zip := in.Address, in.City, in.State, in.Zip
	if loc := in.Location; loc != nil {
		address = firstSet(loc.Address, address)
		city = firstSet(loc.City, city)
		state = firstSet(loc.State, state)
		zip = firstSet(loc.Zip, zip)
	}
	if f.Location.Address, err = stringField(address, "address"); err != nil {
		return Fields{}, err
	}
	if f.Location.City, err = stringField(city, "city"); err != nil {
		return Fields{}, err
	}
	if f.Location.State, err = stringField(state, "state"); err != nil {
		return Fields{}, err
	}
	if f.Location.Zip, err = stringField(zip, "zip"); err != nil {
		return Fields{}, err
	}

	services := in.Services
	if services == nil {
		services = in.ServicesOffered
	}
	if f.Services, err = listField(services, "services"); err != nil {
		return Fields{}, err
	}
	if f.Tags, err = listField(in.Tags, "tags"); err != nil {
		return Fields{}, err
	}
	return f, nil
}

func firstSet(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func stringField(raw any, field string) (string, error) {
	if raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", validationError(field, "must be a string")
	}
	return s, nil
}

func listField(raw any, field string) ([]string, error) {
	split, err := SplitList(raw)
	if err != nil {
		return nil, validationError(field, err.Error())
	}
	return CheckStringList(split, field)
}
